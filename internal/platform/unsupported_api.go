//go:build !windows

package platform

// unsupportedAPI is used where no foreground sampler exists yet
type unsupportedAPI struct{}

// NewForegroundAPI returns a lookup that never reports a foreground app
func NewForegroundAPI() ForegroundAPI {
	return unsupportedAPI{}
}

func (unsupportedAPI) Supported() bool { return false }

func (unsupportedAPI) CurrentApp() (*AppInfo, bool) { return nil, false }
