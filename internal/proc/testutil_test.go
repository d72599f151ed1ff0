package proc

import "github.com/rpi3kernel/core/internal/trap"

func trapFrameZero() trap.Frame {
	return trap.Frame{}
}
