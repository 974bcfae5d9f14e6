package commands

import (
	"fmt"

	"github.com/sert-editor/sert/pkg/logging"
	"github.com/sert-editor/sert/pkg/provenance"
)

// EnvironmentReport is the result of get_python_environment.
type EnvironmentReport struct {
	Provenance provenance.Provenance `json:"provenance"`
	Matched    []string              `json:"matched"`
	Executable string                `json:"executable"`
	Version    string                `json:"version"`
	Strategy   string                `json:"strategy"`
	Error      string                `json:"error,omitempty"`
}

func registerPython(r *Registry, d Deps) {
	py := d.Python
	noPython := func() error { return unavailable("python interpreter", d.Environment.Err) }

	r.RegisterCommand("execute_python", func(c *Context) error {
		code, err := c.Arg("code")
		if err != nil {
			return err
		}
		if py == nil {
			return fmt.Errorf("Python execution error: %v", noPython())
		}
		out, err := py.Exec(c, code)
		if err != nil {
			return fmt.Errorf("Python execution error: %v", err)
		}
		c.SetResult(out)
		return nil
	})

	r.RegisterCommand("evaluate_python_expression", func(c *Context) error {
		expr, err := c.Arg("expression")
		if err != nil {
			return err
		}
		if py == nil {
			return fmt.Errorf("Python evaluation error: %v", noPython())
		}
		out, err := py.Eval(c, expr)
		if err != nil {
			return fmt.Errorf("Python evaluation error: %v", err)
		}
		c.SetResult(out)
		return nil
	})

	r.RegisterCommand("run_python_file", func(c *Context) error {
		path, err := c.Arg("file_path")
		if err != nil {
			return err
		}
		if py == nil {
			return fmt.Errorf("Python file execution error: %v", noPython())
		}
		out, err := py.RunFile(c, path)
		if err != nil {
			return fmt.Errorf("Python file execution error: %v", err)
		}
		c.SetResult(out)
		return nil
	})

	r.RegisterCommand("test_python", func(c *Context) error {
		if py == nil {
			return fmt.Errorf("Python error: %v", noPython())
		}
		out, err := py.Eval(c, "2 + 2")
		if err != nil {
			return fmt.Errorf("Python error: %v", err)
		}
		c.SetResult("Python result: " + out)
		return nil
	})

	r.RegisterCommand("get_python_info", func(c *Context) error {
		if py == nil {
			return fmt.Errorf("Failed to get Python info: %v", noPython())
		}
		info, err := py.Info(c)
		if err != nil {
			return fmt.Errorf("Failed to get Python info: %v", err)
		}
		c.SetResult("Python version: " + info.Version)
		return nil
	})

	r.RegisterCommand("get_python_environment", func(c *Context) error {
		env := d.Environment
		rep := EnvironmentReport{
			Provenance: env.Report.Provenance,
			Matched:    env.Report.Matched,
			Executable: env.Executable,
			Version:    env.Version,
			Strategy:   env.Location.Strategy,
		}
		if rep.Matched == nil {
			rep.Matched = []string{}
		}
		if rep.Executable == "" {
			rep.Executable = env.Location.Path
		}
		if env.Err != nil {
			rep.Error = env.Err.Error()
		}
		d.Logger.DebugCat(logging.CatPython, "Environment requested: %s", rep.Provenance)
		c.SetResult(rep)
		return nil
	})
}
