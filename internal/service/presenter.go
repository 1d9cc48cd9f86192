package service

// Level classifies a status banner.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Presenter is the UI capability boundary. The flows decide what to display;
// how it is rendered (terminal, web page, native view) stays behind this
// interface so the state machine needs no rendering environment.
type Presenter interface {
	ShowMessage(level Level, text string)
	ShowFieldError(field, text string)
	ClearMessages()
	SetLoading(loading bool)
	SetInputsEnabled(enabled bool)
	Navigate(destination string)
}

// FormSubmission is one submitted login or signup form. ConfirmPassword is
// only consulted by the signup flow.
type FormSubmission struct {
	Email           string
	Password        string
	ConfirmPassword string
}
