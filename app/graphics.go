package app

//OpenGL windowing calls and structs
import (
	"fmt"
	"strings"

	F "diesel.com/diesel/fluid"
	G "diesel.com/diesel/geometry"
	U "diesel.com/diesel/utils"
	V "diesel.com/diesel/vector"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
)

//Point pipeline. Positions arrive already packed into clip space.
const (
	vertexSRC = `#version 410 core
layout(location = 0) in vec2 pos;
uniform float pointSize;
void main() {
	gl_Position = vec4(pos, 0.0, 1.0);
	gl_PointSize = pointSize;
}
` + "\x00"

	fragSRC = `#version 410 core
uniform vec3 color;
out vec4 frag;
void main() {
	frag = vec4(color, 1.0);
}
` + "\x00"

	pointSize    = 3.0
	initialVerts = 4096
)

var (
	particleColor = [3]float32{0.2, 0.6, 1.0}
	inletColor    = [3]float32{0.8, 0.8, 0.8}
)

//GLSink draws each frame as GL points in a glfw window. It must be created and
//drawn on the same locked OS thread.
type GLSink struct {
	window   *glfw.Window
	program  uint32
	vao      [2]uint32 //particles, inlet outline
	vbo      [2]uint32
	colorLoc int32
	sizeLoc  int32
	capacity int //particle buffer size in vertices
	count    int
	packed   []float32
	view     V.Vec2
	last     F.Stats
}

//NewGLSink opens the window and builds the point pipeline. inlet is outlined
//with lines as static geometry.
func NewGLSink(win WindowConfig, view V.Vec2, inlet G.Rect) (*GLSink, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("could not initiate glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(win.Width, win.Height, win.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("could not create window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("could not initiate opengl: %w", err)
	}
	F.Logger().Info("opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	g := &GLSink{window: window, view: view, capacity: initialVerts}
	if err := g.buildProgram(); err != nil {
		g.Close()
		return nil, err
	}
	g.makeVAO(inlet)
	gl.Enable(gl.PROGRAM_POINT_SIZE)

	window.SetKeyCallback(g.processInput)
	return g, nil
}

func (g *GLSink) buildProgram() error {
	vtx, err := compileShader(vertexSRC, gl.VERTEX_SHADER)
	if err != nil {
		return err
	}
	frg, err := compileShader(fragSRC, gl.FRAGMENT_SHADER)
	if err != nil {
		return err
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vtx)
	gl.AttachShader(prog, frg)
	gl.LinkProgram(prog)
	gl.DeleteShader(vtx)
	gl.DeleteShader(frg)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(prog, logLength, nil, gl.Str(log))
		return fmt.Errorf("GLSL program failed to link: %v", log)
	}

	g.program = prog
	g.colorLoc = gl.GetUniformLocation(prog, gl.Str("color\x00"))
	g.sizeLoc = gl.GetUniformLocation(prog, gl.Str("pointSize\x00"))
	return nil
}

//makeVAO - buffer 0 streams particle positions, buffer 1 holds the inlet outline
func (g *GLSink) makeVAO(inlet G.Rect) {
	gl.GenBuffers(2, &g.vbo[0])
	gl.GenVertexArrays(2, &g.vao[0])

	gl.BindVertexArray(g.vao[0])
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo[0])
	gl.BufferData(gl.ARRAY_BUFFER, g.capacity*2*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 0, nil)

	corners := []V.Vec2{
		{inlet.Left, inlet.Bottom},
		{inlet.Right, inlet.Bottom},
		{inlet.Right, inlet.Top},
		{inlet.Left, inlet.Top},
	}
	outline := U.PackClip(nil, corners, g.view)
	gl.BindVertexArray(g.vao[1])
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo[1])
	gl.BufferData(gl.ARRAY_BUFFER, len(outline)*4, gl.Ptr(outline), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 0, nil)
}

//upload refreshes the particle VBO, growing it when the fluid outgrows it
func (g *GLSink) upload(positions []V.Vec2) error {
	g.packed = U.PackClip(g.packed, positions, g.view)
	g.count = len(positions)

	gl.BindVertexArray(g.vao[0])
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo[0])
	if g.count > g.capacity {
		for g.capacity < g.count {
			g.capacity *= 2
		}
		gl.BufferData(gl.ARRAY_BUFFER, g.capacity*2*4, nil, gl.DYNAMIC_DRAW)
	}
	if g.count == 0 {
		return nil
	}

	ptr := gl.MapBufferRange(gl.ARRAY_BUFFER, 0, len(g.packed)*4, gl.MAP_WRITE_BIT|gl.MAP_INVALIDATE_RANGE_BIT)
	err := U.TransferPositionData(ptr, g.packed)
	if !gl.UnmapBuffer(gl.ARRAY_BUFFER) && err == nil {
		err = fmt.Errorf("particle buffer corrupted during transfer")
	}
	return err
}

//Draw uploads the frame and swaps. Returns ErrStop once the window is closing.
func (g *GLSink) Draw(f Frame) error {
	if g.window.ShouldClose() {
		return ErrStop
	}
	g.last = f.Stats

	if err := g.upload(f.Positions); err != nil {
		return err
	}

	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(g.program)

	gl.Uniform3f(g.colorLoc, inletColor[0], inletColor[1], inletColor[2])
	gl.BindVertexArray(g.vao[1])
	gl.DrawArrays(gl.LINE_LOOP, 0, 4)

	gl.Uniform3f(g.colorLoc, particleColor[0], particleColor[1], particleColor[2])
	gl.Uniform1f(g.sizeLoc, pointSize)
	gl.BindVertexArray(g.vao[0])
	gl.DrawArrays(gl.POINTS, 0, int32(g.count))

	g.window.SwapBuffers()
	glfw.PollEvents()
	return nil
}

//Close releases the GL objects and the window
func (g *GLSink) Close() error {
	if g.window == nil {
		return nil
	}
	if g.program != 0 {
		gl.DeleteBuffers(2, &g.vbo[0])
		gl.DeleteVertexArrays(2, &g.vao[0])
		gl.DeleteProgram(g.program)
	}
	g.window.Destroy()
	g.window = nil
	glfw.Terminate()
	return nil
}

//ESC closes the window, Tab logs the simulation clock
func (g *GLSink) processInput(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeyTab:
		F.Logger().Info("simulation time", "seconds", g.last.Time, "ticks", g.last.Ticks)
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("GLSL shader failed to compile: %v", log)
	}
	return shader, nil
}
