package conf

// Fields are named, not embedded: the TOML decoder flattens anonymous
// structs, which would drop the [Monitor] and [Web] sections.
type Config struct {
	Monitor Monitor
	Web     Web
}

type Monitor struct {
	// RefreshSeconds is the sampling period; values below 1 are raised
	// to the floor so a bad config cannot spin the sampler.
	RefreshSeconds int
}

type Web struct {
	// Listen is the HTTP bind address, all interfaces by default.
	Listen string
}
