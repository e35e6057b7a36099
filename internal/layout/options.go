package layout

// Option configures a Pack call.
type Option func(*packOptions)

type packOptions struct {
	classifier Classifier
}

func defaultPackOptions() packOptions {
	return packOptions{classifier: ClassifyOccurrence}
}

// WithClassifier sets the hook used to compute LayoutResult.Class.
// A nil classifier leaves the default in place.
func WithClassifier(c Classifier) Option {
	return func(o *packOptions) {
		if c != nil {
			o.classifier = c
		}
	}
}
