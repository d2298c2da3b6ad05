package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt instructs the model on documentation style.
const DefaultSystemPrompt = `You are an expert technical documentation writer specializing in Python projects.
Your task is to create clear, comprehensive, and well-structured documentation that helps developers
understand and use the code effectively. Focus on:
- Clear explanations of purpose and functionality
- Detailed parameter and return value descriptions
- Usage examples where helpful
- Important notes about design decisions or limitations
- Relationships between components
Format everything in clean, readable Markdown.`

// Config holds all settings for a documentation run.
type Config struct {
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`

	ProjectRoot string `yaml:"project_root"`
	OutputDir   string `yaml:"output_dir"`
	StateFile   string `yaml:"state_file"`

	IncludePatterns []string `yaml:"include_patterns"`
	ExcludeDirs     []string `yaml:"exclude_dirs"`
	ExcludeFiles    []string `yaml:"exclude_files"`

	MaxFileSize  int64 `yaml:"max_file_size"`
	IncludeTests bool  `yaml:"include_tests"`

	SystemPrompt string `yaml:"system_prompt"`
}

// Default returns a configuration with the stock scanning policy.
func Default() *Config {
	cwd, _ := os.Getwd()
	return &Config{
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		Model:       "gpt-4-turbo-preview",
		ProjectRoot: cwd,
		OutputDir:   filepath.Join("docs", "generated"),
		StateFile:   ".doc_state.json",
		IncludePatterns: []string{
			"*.py",
		},
		ExcludeDirs: []string{
			"__pycache__", ".git", ".venv", "venv", "env", ".env",
			"node_modules", ".pytest_cache", ".mypy_cache", "build",
			"dist", "*.egg-info", ".tox", "htmlcov", ".coverage",
		},
		ExcludeFiles: []string{
			"setup.py", "conftest.py", "__init__.py",
		},
		MaxFileSize:  100_000,
		IncludeTests: false,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// LoadEnv reads a .env file from the project root when present and then
// re-resolves the API key. Missing files are not an error.
func (c *Config) LoadEnv() {
	_ = godotenv.Load(filepath.Join(c.ProjectRoot, ".env"))
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Load reads a YAML configuration file and overlays it on the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file. The API key is never
// persisted.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// StatePath resolves the ledger file location under the project root.
func (c *Config) StatePath() string {
	if filepath.IsAbs(c.StateFile) {
		return c.StateFile
	}
	return filepath.Join(c.ProjectRoot, c.StateFile)
}

// Validate reports every configuration problem at once. A non-empty result
// must abort the run before any scanning starts.
func (c *Config) Validate() []error {
	errs := c.ValidateProject()
	if c.APIKey == "" {
		errs = append(errs, errors.New("OpenAI API key is required (set OPENAI_API_KEY or --api-key)"))
	}
	return errs
}

// ValidateProject checks everything except the API key, for commands that
// never call the generation service.
func (c *Config) ValidateProject() []error {
	var errs []error
	if c.ProjectRoot == "" {
		errs = append(errs, errors.New("project root is required"))
	} else if info, err := os.Stat(c.ProjectRoot); err != nil || !info.IsDir() {
		errs = append(errs, fmt.Errorf("project root does not exist: %s", c.ProjectRoot))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("max_file_size must be positive"))
	}
	return errs
}
