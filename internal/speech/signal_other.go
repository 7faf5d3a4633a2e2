//go:build !unix

package speech

import "os"

const canSuspend = false

func suspend(*os.Process) error { return ErrUnsupported }

func proceed(*os.Process) error { return ErrUnsupported }
