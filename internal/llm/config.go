package llm

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	// TaskRoadmap generates a roadmap tree for a topic and hour budget.
	TaskRoadmap TaskType = "roadmap"
	// TaskRefine asks the model to repair a roadmap it returned malformed.
	TaskRefine TaskType = "refine"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TimeoutMs   int     `mapstructure:"timeout_ms"` // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem. It is filled by
// the config package from the llm section of the config file and
// STUDYMAP_LLM_* environment variables.
type LLMConfig struct {
	Enabled    bool                    `mapstructure:"enabled"`
	LogCalls   bool                    `mapstructure:"log_calls"`
	Endpoint   string                  `mapstructure:"endpoint"`
	Model      string                  `mapstructure:"model"`
	TimeoutMs  int                     `mapstructure:"timeout_ms"`
	MaxRetries int                     `mapstructure:"max_retries"`
	Tasks      map[TaskType]TaskConfig `mapstructure:"tasks"`
}

// DefaultConfig returns an LLMConfig with sensible defaults.
// LLM is disabled by default; plans are then generated from templates when
// the backend is unreachable.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:    false,
		LogCalls:   false,
		Endpoint:   "http://localhost:11434",
		Model:      "llama3.2",
		TimeoutMs:  10000,
		MaxRetries: 1,
		Tasks: map[TaskType]TaskConfig{
			TaskRoadmap: {Temperature: 0.3, MaxTokens: 4096, TimeoutMs: 60000},
			TaskRefine:  {Temperature: 0.1, MaxTokens: 4096, TimeoutMs: 30000},
		},
	}
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}
