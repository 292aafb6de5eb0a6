//go:build windows

package main

// disableCtrlCEcho does nothing on windows, there is no ECHOCTL.
func disableCtrlCEcho() func() { return func() {} }
