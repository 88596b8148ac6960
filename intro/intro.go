// Package intro holds the import table of the demo this module was built
// for: OpenGL, SDL2, FreeType, Opus, FFTW and C library entry points, in
// the order the program binds them.
package intro

import (
	"slices"
	"sync"

	"github.com/sliverarmory/dnload"
)

var slots = []dnload.Slot{
	{Name: "glGenerateMipmap", Hash: 0x11741122, Signature: "void glGenerateMipmap(GLenum)"},
	{Name: "SDL_CondSignal", Hash: 0x11f4f60e, Signature: "int SDL_CondSignal(SDL_cond*)"},
	{Name: "glLinkProgram", Hash: 0x133a35c5, Signature: "void glLinkProgram(GLuint)"},
	{Name: "glBindBuffer", Hash: 0x15aa3ae2, Signature: "void glBindBuffer(GLenum, GLuint)"},
	{Name: "glBufferSubData", Hash: 0x164ac985, Signature: "void glBufferSubData(GLenum, GLintptr, GLsizeiptr, const void*)"},
	{Name: "SDL_CondWait", Hash: 0x167a16bb, Signature: "int SDL_CondWait(SDL_cond*, SDL_mutex*)"},
	{Name: "fmodf", Hash: 0x16a18daa, Signature: "float fmodf(float, float)"},
	{Name: "glFramebufferTexture2D", Hash: 0x18781f65, Signature: "void glFramebufferTexture2D(GLenum, GLenum, GLenum, GLuint, GLint)"},
	{Name: "qsort", Hash: 0x19008aaf, Signature: "void qsort(void*, size_t, size_t, int (*)(const void*, const void*))"},
	{Name: "sinf", Hash: 0x1ab23d2e, Signature: "float sinf(float)"},
	{Name: "SDL_GL_SetAttribute", Hash: 0x1da21ab0, Signature: "int SDL_GL_SetAttribute(SDL_GLattr, int)"},
	{Name: "fftw_execute", Hash: 0x01e9bcf9, Signature: "void fftw_execute(const fftw_plan)"},
	{Name: "glClear", Hash: 0x1fd92088, Signature: "void glClear(GLbitfield)"},
	{Name: "glUniform1fv", Hash: 0x21383ab2, Signature: "void glUniform1fv(GLint, GLsizei, const GLfloat*)"},
	{Name: "glUniform1iv", Hash: 0x213b3b6f, Signature: "void glUniform1iv(GLint, GLsizei, const GLint*)"},
	{Name: "glUniform2fv", Hash: 0x21b64a33, Signature: "void glUniform2fv(GLint, GLsizei, const GLfloat*)"},
	{Name: "glUniform3fv", Hash: 0x223459b4, Signature: "void glUniform3fv(GLint, GLsizei, const GLfloat*)"},
	{Name: "glUniform4fv", Hash: 0x22b26935, Signature: "void glUniform4fv(GLint, GLsizei, const GLfloat*)"},
	{Name: "glGetUniformLocation", Hash: 0x25c12218, Signature: "GLint glGetUniformLocation(GLuint, const GLchar*)"},
	{Name: "SDL_GL_SwapWindow", Hash: 0x295bfb59, Signature: "void SDL_GL_SwapWindow(SDL_Window*)"},
	{Name: "SDL_PauseAudio", Hash: 0x029f14a4, Signature: "void SDL_PauseAudio(int)"},
	{Name: "SDL_Delay", Hash: 0x2ccbf01f, Signature: "void SDL_Delay(Uint32)"},
	{Name: "FT_Set_Pixel_Sizes", Hash: 0x02e0eeab, Signature: "FT_Error FT_Set_Pixel_Sizes(FT_Face, FT_UInt, FT_UInt)"},
	{Name: "FT_New_Face", Hash: 0x2f7e33ed, Signature: "FT_Error FT_New_Face(FT_Library, const char*, FT_Long, FT_Face*)"},
	{Name: "glAttachShader", Hash: 0x30b3cfcf, Signature: "void glAttachShader(GLuint, GLuint)"},
	{Name: "glClearDepthf", Hash: 0x338598ab, Signature: "void glClearDepthf(GLfloat)"},
	{Name: "cosf", Hash: 0x353e8f7f, Signature: "float cosf(float)"},
	{Name: "SDL_UnlockMutex", Hash: 0x3a574477, Signature: "int SDL_UnlockMutex(SDL_mutex*)"},
	{Name: "glGenBuffers", Hash: 0x3dce2328, Signature: "void glGenBuffers(GLsizei, GLuint*)"},
	{Name: "tanf", Hash: 0x454891e5, Signature: "float tanf(float)"},
	{Name: "SDL_GetThreadID", Hash: 0x45904f57, Signature: "SDL_threadID SDL_GetThreadID(SDL_Thread*)"},
	{Name: "SDL_OpenAudio", Hash: 0x46fd70c8, Signature: "int SDL_OpenAudio(SDL_AudioSpec*, SDL_AudioSpec*)"},
	{Name: "SDL_CreateWindow", Hash: 0x4fbea370, Signature: "SDL_Window* SDL_CreateWindow(const char*, int, int, int, int, Uint32)"},
	{Name: "glUniformMatrix2fv", Hash: 0x502ac1d2, Signature: "void glUniformMatrix2fv(GLint, GLsizei, GLboolean, const GLfloat*)"},
	{Name: "glUniformMatrix3fv", Hash: 0x50a8d153, Signature: "void glUniformMatrix3fv(GLint, GLsizei, GLboolean, const GLfloat*)"},
	{Name: "glUniformMatrix4fv", Hash: 0x5126e0d4, Signature: "void glUniformMatrix4fv(GLint, GLsizei, GLboolean, const GLfloat*)"},
	{Name: "glBindRenderbuffer", Hash: 0x53a3ca18, Signature: "void glBindRenderbuffer(GLenum, GLuint)"},
	{Name: "SDL_CondBroadcast", Hash: 0x5e41dcdb, Signature: "int SDL_CondBroadcast(SDL_cond*)"},
	{Name: "fftw_destroy_plan", Hash: 0x5f9b574a, Signature: "void fftw_destroy_plan(fftw_plan)"},
	{Name: "SDL_WaitThread", Hash: 0x62469d23, Signature: "void SDL_WaitThread(SDL_Thread*, int*)"},
	{Name: "glDrawElements", Hash: 0x64074f40, Signature: "void glDrawElements(GLenum, GLsizei, GLenum, const GLvoid*)"},
	{Name: "glDisableVertexAttribArray", Hash: 0x647c0b08, Signature: "void glDisableVertexAttribArray(GLuint)"},
	{Name: "SDL_PollEvent", Hash: 0x64949d97, Signature: "int SDL_PollEvent(SDL_Event*)"},
	{Name: "glDeleteShader", Hash: 0x686f65b5, Signature: "void glDeleteShader(GLuint)"},
	{Name: "glDepthMask", Hash: 0x0695018a, Signature: "void glDepthMask(GLboolean)"},
	{Name: "glCreateShader", Hash: 0x6b4ffac6, Signature: "GLuint glCreateShader(GLenum)"},
	{Name: "srand", Hash: 0x6b699dd8, Signature: "void srand(unsigned int)"},
	{Name: "SDL_DestroyMutex", Hash: 0x6dda9ec9, Signature: "void SDL_DestroyMutex(SDL_mutex*)"},
	{Name: "SDL_Init", Hash: 0x070d6574, Signature: "int SDL_Init(Uint32)"},
	{Name: "log2f", Hash: 0x0716e0d8, Signature: "float log2f(float)"},
	{Name: "glColorMask", Hash: 0x71de4aca, Signature: "void glColorMask(GLboolean, GLboolean, GLboolean, GLboolean)"},
	{Name: "SDL_LockMutex", Hash: 0x72b4ef70, Signature: "int SDL_LockMutex(SDL_mutex*)"},
	{Name: "FT_Init_FreeType", Hash: 0x773710a4, Signature: "FT_Error FT_Init_FreeType(FT_Library*)"},
	{Name: "glCreateProgram", Hash: 0x078721c3, Signature: "GLuint glCreateProgram(void)"},
	{Name: "glGenRenderbuffers", Hash: 0x7c824ef2, Signature: "void glGenRenderbuffers(GLsizei, GLuint*)"},
	{Name: "SDL_Quit", Hash: 0x7eb657f3, Signature: "void SDL_Quit(void)"},
	{Name: "SDL_ThreadID", Hash: 0x7eb690c9, Signature: "SDL_threadID SDL_ThreadID(void)"},
	{Name: "SDL_CreateThread", Hash: 0x83d86faa, Signature: "SDL_Thread* SDL_CreateThread(int (*)(void*), const char*, void*)"},
	{Name: "FT_Render_Glyph", Hash: 0x88a089d4, Signature: "FT_Error FT_Render_Glyph(FT_GlyphSlot, FT_Render_Mode)"},
	{Name: "glClearColor", Hash: 0x8c118fbb, Signature: "void glClearColor(GLfloat, GLfloat, GLfloat, GLfloat)"},
	{Name: "SDL_CreateCond", Hash: 0x8ebee9c2, Signature: "SDL_cond* SDL_CreateCond(void)"},
	{Name: "powf", Hash: 0x921b2a2e, Signature: "float powf(float, float)"},
	{Name: "glBindTexture", Hash: 0x95e43fb9, Signature: "void glBindTexture(GLenum, GLuint)"},
	{Name: "expf", Hash: 0x96b7bbc9, Signature: "float expf(float)"},
	{Name: "glBufferData", Hash: 0x9aa49d4f, Signature: "void glBufferData(GLenum, GLsizeiptr, const GLvoid*, GLenum)"},
	{Name: "glGenTextures", Hash: 0x9bdd4fa3, Signature: "void glGenTextures(GLsizei, GLuint*)"},
	{Name: "SDL_DestroyCond", Hash: 0x9c453778, Signature: "void SDL_DestroyCond(SDL_cond*)"},
	{Name: "opus_decode_float", Hash: 0x9c84190b, Signature: "int opus_decode_float(OpusDecoder*, const unsigned char*, opus_int32, float*, int, int)"},
	{Name: "glBindFramebuffer", Hash: 0xa0fdff6b, Signature: "void glBindFramebuffer(GLenum, GLuint)"},
	{Name: "glTexImage2D", Hash: 0xa259532b, Signature: "void glTexImage2D(GLenum, GLint, GLint, GLsizei, GLsizei, GLint, GLenum, GLenum, const GLvoid*)"},
	{Name: "FT_Get_Char_Index", Hash: 0xb1177d43, Signature: "FT_UInt FT_Get_Char_Index(FT_Face, FT_ULong)"},
	{Name: "glDeleteBuffers", Hash: 0xb1319e23, Signature: "void glDeleteBuffers(GLsizei, const GLuint*)"},
	{Name: "glGenFramebuffers", Hash: 0xb1503371, Signature: "void glGenFramebuffers(GLsizei, GLuint*)"},
	{Name: "realloc", Hash: 0xb1ae4962, Signature: "void* realloc(void*, size_t)"},
	{Name: "glDisable", Hash: 0x0b5f7c43, Signature: "void glDisable(GLenum)"},
	{Name: "glBlendFuncSeparate", Hash: 0xb82574f3, Signature: "void glBlendFuncSeparate(GLenum, GLenum, GLenum, GLenum)"},
	{Name: "fftw_plan_r2r_1d", Hash: 0xb8531c5a, Signature: "fftw_plan fftw_plan_r2r_1d(int, double*, double*, fftw_r2r_kind, unsigned)"},
	{Name: "SDL_ShowCursor", Hash: 0xb88bf697, Signature: "int SDL_ShowCursor(int)"},
	{Name: "glDeleteProgram", Hash: 0xbd317294, Signature: "void glDeleteProgram(GLuint)"},
	{Name: "free", Hash: 0xc23f2ccc, Signature: "void free(void*)"},
	{Name: "glVertexAttribPointer", Hash: 0xc443174a, Signature: "void glVertexAttribPointer(GLuint, GLint, GLenum, GLboolean, GLsizei, const GLvoid*)"},
	{Name: "glCompileShader", Hash: 0xc5165dd3, Signature: "void glCompileShader(GLuint)"},
	{Name: "glShaderSource", Hash: 0xc609c385, Signature: "void glShaderSource(GLuint, GLsizei, const GLchar**, const GLint*)"},
	{Name: "glDepthFunc", Hash: 0xcab98122, Signature: "void glDepthFunc(GLenum)"},
	{Name: "glRenderbufferStorage", Hash: 0xcbd90e40, Signature: "void glRenderbufferStorage(GLenum, GLenum, GLsizei, GLsizei)"},
	{Name: "SDL_CreateMutex", Hash: 0xcc177eff, Signature: "SDL_mutex* SDL_CreateMutex(void)"},
	{Name: "glUseProgram", Hash: 0xcc55bb62, Signature: "void glUseProgram(GLuint)"},
	{Name: "roundf", Hash: 0xcd6ca938, Signature: "float roundf(float)"},
	{Name: "glGetAttribLocation", Hash: 0xceb27dd0, Signature: "GLint glGetAttribLocation(GLuint, const GLchar*)"},
	{Name: "SDL_GetTicks", Hash: 0xd1d0b104, Signature: "uint32_t SDL_GetTicks(void)"},
	{Name: "exp2f", Hash: 0xd2cc2a11, Signature: "float exp2f(float)"},
	{Name: "glPolygonOffset", Hash: 0xd77292a8, Signature: "void glPolygonOffset(GLfloat, GLfloat)"},
	{Name: "glActiveTexture", Hash: 0xd7d4d450, Signature: "void glActiveTexture(GLenum)"},
	{Name: "logf", Hash: 0xd7efe342, Signature: "float logf(float)"},
	{Name: "FT_Load_Glyph", Hash: 0xdb48d8e4, Signature: "FT_Error FT_Load_Glyph(FT_Face, FT_UInt, FT_Int32)"},
	{Name: "SDL_GL_CreateContext", Hash: 0x0dba45bd, Signature: "SDL_GLContext SDL_GL_CreateContext(SDL_Window*)"},
	{Name: "glTexParameterf", Hash: 0xdefef0bf, Signature: "void glTexParameterf(GLenum, GLenum, GLfloat)"},
	{Name: "glTexParameteri", Hash: 0xdefef0c2, Signature: "void glTexParameteri(GLenum, GLenum, GLint)"},
	{Name: "floorf", Hash: 0xe0f62bba, Signature: "float floorf(float)"},
	{Name: "glCullFace", Hash: 0xe379fd94, Signature: "void glCullFace(GLenum)"},
	{Name: "opus_decoder_create", Hash: 0xe3ffda57, Signature: "OpusDecoder* opus_decoder_create(opus_int32, int, int*)"},
	{Name: "lrintf", Hash: 0xe5e5b9bd, Signature: "long lrintf(float)"},
	{Name: "rand", Hash: 0xe83af065, Signature: "int rand(void)"},
	{Name: "glEnableVertexAttribArray", Hash: 0xe9e99723, Signature: "void glEnableVertexAttribArray(GLuint)"},
	{Name: "glFramebufferRenderbuffer", Hash: 0xea8c7dfe, Signature: "void glFramebufferRenderbuffer(GLenum, GLenum, GLint, GLuint)"},
	{Name: "glViewport", Hash: 0xecca892b, Signature: "void glViewport(GLint, GLint, GLsizei, GLsizei)"},
	{Name: "glEnable", Hash: 0xf1854d68, Signature: "void glEnable(GLenum)"},
}

var table = sync.OnceValue(func() *dnload.Table {
	return dnload.MustTable(slots...)
})

// Table returns the validated import table. It is built on first use.
func Table() *dnload.Table { return table() }

// Slots returns a copy of the raw slot list.
func Slots() []dnload.Slot { return slices.Clone(slots) }
