package features

var (
	DefaultVersion = 1
)

func NewConsumer(version int) Consumer {
	switch version {
	case DefaultVersion:
		return newFeatureConsumer()
	default:
		return nil
	}
}

// SetInstance swaps the singleton. Tests only.
func SetInstance(c Consumer) {
	featureConsumer = c
	featureOnce.Do(func() {})
}
