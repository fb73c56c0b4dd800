package mockmedia

// NopLogger discards everything. Tests use it to keep output quiet.
type NopLogger struct{}

func (NopLogger) Info(string)                                        {}
func (NopLogger) InfoWithFields(string, map[string]interface{})      {}
func (NopLogger) Error(error, string)                                {}
func (NopLogger) ErrorWithFields(error, string, map[string]interface{}) {}
func (NopLogger) Debug(string)                                       {}
func (NopLogger) DebugWithFields(string, map[string]interface{})     {}
func (NopLogger) Warn(string)                                        {}
func (NopLogger) WarnWithFields(string, map[string]interface{})      {}
