package sqlite

import (
	"strings"
)

// Config is a configuration of the [Storage]. It can only be changed by the [ConfigFunc] passed to
// [New].
type Config struct {
	file    string
	durable bool
	conns   int
}

type ConfigFunc = func(c *Config)

// File sets the database file. The special value ":memory:" opens a private in-memory database.
func (c *Config) File(file string) {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	if strings.Contains(file, "?") {
		panic("file can't contain ?")
	}
	c.file = file
}

// Durable makes every commit wait for a full fsync. It has no effect on in-memory databases.
func (c *Config) Durable(durable bool) {
	c.durable = durable
}

// Conns sets the maximum number of open connections to a file database.
func (c *Config) Conns(conns int) {
	if conns < 1 {
		panic("conns can't be < 1")
	}
	c.conns = conns
}
