package cfg

import "time"

type Cfg struct {
	// Sources
	SourcesFile    string
	CategoriesFile string
	SampleSize     int

	// Pipeline
	Concurrency    int
	FetchTimeout   int
	ProbeTimeout   int
	CacheTTL       int
	EntriesPerFeed int
	SectionCap     int
	BreakingWindow int
	WarmSchedule   string

	// Collaborators
	DBPath       string
	RedisAddr    string
	ForensicsURL string
	AnalyzeRate  float64

	// Application configuration
	Port    string
	BaseUrl string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

func (c *Cfg) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Cfg) ProbeTimeoutDuration() time.Duration {
	return time.Duration(c.ProbeTimeout) * time.Second
}

func (c *Cfg) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func (c *Cfg) BreakingWindowDuration() time.Duration {
	return time.Duration(c.BreakingWindow) * time.Second
}
