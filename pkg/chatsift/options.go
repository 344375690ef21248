package chatsift

type options struct {
	rulesFile   string
	sampleLimit int
	verbosity   string
}

// Option configures a Chatsift instance.
type Option func(*options)

// WithRulesFile loads a custom YAML rule table instead of the built-in
// categories. Categories appear in precedence order; the final one must
// carry no cues and becomes the default bucket.
func WithRulesFile(path string) Option {
	return func(o *options) {
		o.rulesFile = path
	}
}

// WithSampleLimit sets how many raw message texts are kept per bucket.
// Default: 3.
func WithSampleLimit(n int) Option {
	return func(o *options) {
		o.sampleLimit = n
	}
}

// WithVerbosity sets how much of a snapshot Format renders: "minimal",
// "standard", "full". Default: "standard".
func WithVerbosity(v string) Option {
	return func(o *options) {
		o.verbosity = v
	}
}

func defaultOptions() options {
	return options{
		sampleLimit: 3,
		verbosity:   "standard",
	}
}
