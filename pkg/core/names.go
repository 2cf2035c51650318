package core

import "strconv"

// makeUniqueNetName returns a name guaranteed unique against NETLIST at the
// moment of return. Callers that mint many names before creating the
// corresponding nets only get uniqueness against pre-existing names, not
// against each other's prior mints (see the design's name-generator
// contract) -- every component in this package creates its net immediately
// after minting the name to stay within that contract.
func (c *Core) makeUniqueNetName() string {
	for {
		c.netUnique++
		name := "net" + strconv.FormatUint(c.netUnique, 10)
		if _, exists := c.nl.FindNet(name); !exists {
			return name
		}
	}
}

// makeUniqueInstName returns "{base}{n}" or, if underscore is set,
// "{base}_{n}", advancing past any name NETLIST already has.
func (c *Core) makeUniqueInstName(base string, underscore bool) string {
	sep := ""
	if underscore {
		sep = "_"
	}
	for {
		c.instUnique++
		name := base + sep + strconv.FormatUint(c.instUnique, 10)
		if _, exists := c.nl.FindInstance(name); !exists {
			return name
		}
	}
}
