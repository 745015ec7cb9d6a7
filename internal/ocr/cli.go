//go:build !ocr

package ocr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CLIEngine runs the tesseract binary, reading the image from stdin.
type CLIEngine struct {
	Binary string
}

// NewDefaultEngine returns the engine compiled into this build.
func NewDefaultEngine() Engine {
	return &CLIEngine{Binary: "tesseract"}
}

func (e *CLIEngine) Languages(ctx context.Context) ([]string, error) {
	out, err := e.run(ctx, nil, "--list-langs")
	if err != nil {
		return nil, err
	}
	return parseLanguageList(out), nil
}

func (e *CLIEngine) Recognize(ctx context.Context, png []byte, langs []string, psm int) (string, error) {
	args := []string{"-", "stdout", "--psm", strconv.Itoa(psm)}
	if len(langs) > 0 {
		args = append(args, "-l", strings.Join(langs, "+"))
	}
	out, err := e.run(ctx, png, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (e *CLIEngine) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(e.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrEngineUnavailable, e.Binary)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("tesseract exit %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("tesseract: %w", err)
	}
	return out, nil
}

// parseLanguageList reads `tesseract --list-langs` output, which starts with
// a "List of available languages" header line.
func parseLanguageList(out []byte) []string {
	var langs []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of") {
			continue
		}
		langs = append(langs, line)
	}
	return langs
}
