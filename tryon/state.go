package tryon

// State is a step of one invocation. Failed is reachable from any state.
type State string

const (
	StateReceived        State = "received"
	StateAuthenticated   State = "authenticated"
	StateValidated       State = "validated"
	StateProviderCalled  State = "provider_called"
	StateResultFetched   State = "result_fetched"
	StateResultStored    State = "result_stored"
	StateRecordPersisted State = "record_persisted"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)
