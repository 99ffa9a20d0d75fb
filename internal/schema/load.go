package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadError is returned when grid sources cannot be read or built.
type LoadError struct {
	Code    LoadErrorCode
	Message string
	Pos     token.Pos // CUE position if available
}

// LoadErrorCode categorizes load failures.
type LoadErrorCode string

const (
	// ErrCodeNotFound indicates the path does not exist.
	ErrCodeNotFound LoadErrorCode = "NOT_FOUND"

	// ErrCodeNoFiles indicates a directory without .cue files.
	ErrCodeNoFiles LoadErrorCode = "NO_FILES"

	// ErrCodeLoadFailed indicates CUE could not load the files.
	ErrCodeLoadFailed LoadErrorCode = "LOAD_FAILED"

	// ErrCodeBuildFailed indicates CUE could not evaluate the files.
	ErrCodeBuildFailed LoadErrorCode = "BUILD_FAILED"
)

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load compiles the grids declared at path: a single .cue file or a
// directory whose .cue files form one CUE instance. The returned errors are
// *LoadError or *CompileError values; the Schema holds every grid that
// compiled.
func Load(path string) (*Schema, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema path: %v", err)}}
	}

	ctx := cuecontext.New()
	var v cue.Value
	if info.IsDir() {
		v, err = loadDir(ctx, path)
	} else {
		v, err = loadFile(ctx, path)
	}
	if err != nil {
		return nil, []error{err}
	}
	return CompileSchema(v)
}

func loadFile(ctx *cue.Context, path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cue.Value{}, buildError(err)
	}
	return v, nil
}

func loadDir(ctx *cue.Context, dir string) (cue.Value, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return cue.Value{}, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, buildError(err)
	}
	return v, nil
}

func buildError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	if ce, ok := formatCUEError(err).(*CompileError); ok {
		le.Pos = ce.Pos
	}
	return le
}

// FindCUEFiles returns the .cue files directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
