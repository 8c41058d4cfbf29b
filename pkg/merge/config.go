package merge

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Config holds engine options that are not part of a run's data.
type Config struct {
	Logger    *log.Logger // nil discards log output
	FontDir   string      // directory custom fonts are loaded from
	Compress  bool        // compress page content streams
	QRWorkers int         // QR codes encoded concurrently per row
	Timestamp time.Time   // creation date written to outputs, zero means start of run
	OnState   func(State) // called on every state transition
	LayerName string      // put merged content in an optional content layer of this name
	Debug     bool        // outline every placement box in red
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Logger:    nil, // discard
		FontDir:   "",  // standard fonts only
		Compress:  true,
		QRWorkers: 4,
		LayerName: "", // no layer
		Debug:     false,
	}
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}
