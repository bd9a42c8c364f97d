package app

import "time"

// Resolver names accepted by Config.Resolver.
const (
	ResolverCascade = "cascade"
	ResolverBrowser = "browser"
	ResolverNone    = "none"
)

// Defaults shared by flag parsing and file config overlay.
const (
	DefaultOutputDir = "elementor-out"
	DefaultCacheDir  = ".converhtml-cache"
	DefaultListen    = ":8080"
)

// Config holds runtime configuration for the application.
type Config struct {
	// InputPath is the HTML file to convert; "-" reads stdin. Ignored when
	// Prompt is set.
	InputPath string
	OutputDir string

	// Generation
	Prompt       string
	ImagePath    string
	SystemPrompt string

	// LLM
	LLMBaseURL    string
	LLMModel      string
	LLMImageModel string
	LLMAPIKey     string
	LLMCacheOnly  bool

	// Conversion
	Resolver       string
	ViewportWidth  int
	ViewportHeight int
	ChromeBin      string
	ChromeURL      string
	NoSandbox      bool
	KeepSelector   bool
	Sanitize       bool

	// Output
	Tar           bool
	ReportPath    string
	ReportPDFPath string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxBytes    int64
	CacheClear       bool
	CacheStrictPerms bool

	// Server
	ListenAddr string

	// Behavior
	DryRun  bool
	Verbose bool
}
