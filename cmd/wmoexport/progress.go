package main

import (
	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/logger"
)

// logProgress reports export progress through the debug log, at most once
// per tenth of a task.
type logProgress struct {
	name string
	max  int
	last int
}

func (p *logProgress) SetTaskName(name string) {
	p.name = name
	p.last = -1
	logger.Debug("task", zap.String("name", name))
}

func (p *logProgress) SetTaskMax(max int) {
	p.max = max
	p.last = -1
}

func (p *logProgress) SetTaskValue(value int) {
	if p.max <= 0 {
		return
	}
	step := value * 10 / p.max
	if step == p.last {
		return
	}
	p.last = step
	logger.Debug("progress", zap.String("task", p.name), zap.Int("value", value), zap.Int("max", p.max))
}

func (p *logProgress) ClearTask() {
	p.name = ""
	p.max = 0
	p.last = -1
}
