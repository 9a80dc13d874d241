//go:build !debug

package debug

const enabled = false

func Assert(bool, ...interface{})          {}
func Assertf(bool, string, ...interface{}) {}
func AssertNoErr(error)                    {}
func Errorf(string, ...interface{})        {}
func Infof(string, ...interface{})         {}
func Enabled() bool                        { return enabled }
