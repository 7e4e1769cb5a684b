package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// cleanEnv returns os.Environ() with nested claude session vars removed
// so the subprocess doesn't refuse to start.
func cleanEnv() []string {
	blocked := map[string]bool{
		"CLAUDECODE":             true,
		"CLAUDE_CODE_ENTRYPOINT": true,
	}
	var env []string
	for _, e := range os.Environ() {
		key, _, _ := strings.Cut(e, "=")
		if !blocked[key] {
			env = append(env, e)
		}
	}
	return env
}

// ClaudeCLI shells out to the claude binary with a JSON schema.
type ClaudeCLI struct {
	Model  string
	Binary string
	logger *slog.Logger
}

func NewClaudeCLI(model string, logger *slog.Logger) *ClaudeCLI {
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = "sonnet"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ClaudeCLI{Model: model, Binary: "claude", logger: logger}
}

func (c *ClaudeCLI) SuggestActivities(ctx context.Context, req SlotRequest) (*Ideas, error) {
	schema, err := ideasSchemaJSON()
	if err != nil {
		return nil, err
	}
	systemPrompt := buildSystemPrompt(req)
	userPrompt := buildUserPrompt(req)

	args := []string{
		"-p", userPrompt,
		"--output-format", "json",
		"--model", c.Model,
		"--system-prompt", systemPrompt,
		"--json-schema", schema,
		"--no-session-persistence",
	}

	c.logger.Debug("invoking claude CLI",
		"model", c.Model,
		"date", req.Date,
		"minutes", req.Minutes,
		"system_prompt_len", len(systemPrompt),
		"schema_len", len(schema),
	)

	result, err := c.runCLI(ctx, args)
	if err != nil {
		return nil, err
	}

	var ideas Ideas
	if err := json.Unmarshal([]byte(result), &ideas); err != nil {
		c.logger.Error("failed to parse ideas",
			"error", err,
			"raw", truncateStr(result, 2000),
		)
		return nil, fmt.Errorf("parsing ideas: %w (raw: %s)", err, truncateStr(result, 1000))
	}

	c.logger.Debug("parsed ideas", "activities", len(ideas.Activities))
	return &ideas, nil
}

func (c *ClaudeCLI) runCLI(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Env = cleanEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startTime := time.Now()
	err := cmd.Run()
	elapsed := time.Since(startTime)

	c.logger.Debug("claude CLI finished",
		"elapsed", elapsed,
		"stdout_bytes", stdout.Len(),
		"stderr_bytes", stderr.Len(),
		"error", err,
	)

	if err != nil {
		c.logger.Error("claude CLI failed",
			"error", err,
			"elapsed", elapsed,
			"stderr", stderr.String(),
		)
		if ctx.Err() != nil {
			return "", fmt.Errorf("claude CLI timed out after %s", elapsed.Truncate(time.Second))
		}
		return "", fmt.Errorf("running claude CLI: %w (stderr: %s)", err, stderr.String())
	}

	return unwrapEnvelope(stdout.Bytes()), nil
}

// unwrapEnvelope extracts the payload from claude's --output-format json
// envelope. structured_output wins over result; anything unrecognised is
// returned as-is.
func unwrapEnvelope(out []byte) string {
	var wrapper struct {
		Result           json.RawMessage `json:"result"`
		StructuredOutput json.RawMessage `json:"structured_output"`
	}
	if err := json.Unmarshal(out, &wrapper); err != nil {
		return string(out)
	}

	if len(wrapper.StructuredOutput) > 0 && wrapper.StructuredOutput[0] == '{' {
		return string(wrapper.StructuredOutput)
	}

	if len(wrapper.Result) > 0 {
		// result is either an escaped JSON string or the object itself
		var s string
		if err := json.Unmarshal(wrapper.Result, &s); err == nil && s != "" {
			return s
		}
		if wrapper.Result[0] == '{' || wrapper.Result[0] == '[' {
			return string(wrapper.Result)
		}
	}

	return string(out)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
