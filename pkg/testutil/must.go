package testutil

// Must panics if the error value is not nil. It is useful with setup calls
// that "can't fail" in tests, like removing a file the test itself created.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
