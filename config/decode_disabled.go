//go:build noconfig

package config

// StructuredConfig reports whether configuration text decoding is compiled in.
const StructuredConfig = false

var errUnavailable = newError(ErrConfigParse, "structured-config support not available")

func decodeRaw(file, _ string) (RawConfig, error) {
	return RawConfig{}, errUnavailable.in(file)
}

// Encode renders raw as configuration text in format.
func (RawConfig) Encode(Format) ([]byte, error) {
	return nil, errUnavailable
}
