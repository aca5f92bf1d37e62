package features

type Consumer interface {
	Process(events []Event) error
	ProcessInSequence(events []Event) error
}
