package asyncdb

// Option configures a connection at Connect time.
type Option func(c *Conn, clientOptions map[string]string)

// WithLogger sets the logger used for connection diagnostics. The default
// discards all output.
func WithLogger(logger Logger) Option {
	return func(c *Conn, _ map[string]string) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIterChunkSize sets how many rows cursor iteration fetches per
// request. Larger chunks mean fewer queue round trips per row; smaller
// chunks mean less buffering. The default is DefaultIterChunkSize.
func WithIterChunkSize(n int) Option {
	return func(c *Conn, _ map[string]string) {
		if n > 0 {
			c.iterChunkSize = n
		}
	}
}

// WithClientOption passes one key/value pair through to the driver's
// Connect call. asyncdb does not interpret it.
func WithClientOption(key, value string) Option {
	return func(_ *Conn, clientOptions map[string]string) {
		clientOptions[key] = value
	}
}
