package testutil

import "os"

// Setenv sets an environment variable for the duration of a test. It
// returns value for convenience.
func Setenv(c Cleanuper, name, value string) string {
	SaveEnv(c, name)
	os.Setenv(name, value)
	return value
}

// Unsetenv unsets an environment variable for the duration of a test.
func Unsetenv(c Cleanuper, name string) {
	SaveEnv(c, name)
	os.Unsetenv(name)
}

// SaveEnv arranges for an environment variable to be restored to its
// current state, set or unset, after the test finishes.
func SaveEnv(c Cleanuper, name string) {
	value, set := os.LookupEnv(name)
	c.Cleanup(func() {
		if set {
			os.Setenv(name, value)
		} else {
			os.Unsetenv(name)
		}
	})
}
