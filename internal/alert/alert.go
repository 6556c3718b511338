package alert

import (
	"fmt"
	"self-checkout/internal/event"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
)

// Rule 是一条店员告警规则，When 使用 expr 语法，例如
//
//	Cause == "weight_discrepancy" && Deviation > 500
type Rule struct {
	Name string `mapstructure:"name"`
	When string `mapstructure:"when"`
}

// Env 是规则可以访问的变量
type Env struct {
	StationID string
	Cause     string  // 锁定原因
	Deviation float64 // 重量偏差（克）
	Previous  string  // 锁定前的状态
	Total     float64 // 购物车总额（元）
	Items     int     // 购物车条目数
}

// EnvFromEvent 从 StationBlocked 事件构建规则环境
func EnvFromEvent(e event.Event) Env {
	return Env{
		StationID: e.StationID,
		Cause:     string(e.Cause),
		Deviation: e.Deviation,
		Previous:  string(e.Snapshot.PreviousState),
		Total:     e.Snapshot.Total.Decimal().InexactFloat64(),
		Items:     len(e.Snapshot.Entries),
	}
}

type compiled struct {
	name    string
	program *vm.Program
}

// Engine 持有预编译的规则
type Engine struct {
	rules []compiled
}

// NewEngine 编译所有规则，任何一条规则非法都会返回错误
func NewEngine(rules []Rule) (*Engine, error) {
	e := &Engine{}
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("alert rule %q has no name", r.When)
		}
		program, err := expr.Compile(r.When, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("rule %s compilation failed: %w", r.Name, err)
		}
		e.rules = append(e.rules, compiled{name: r.Name, program: program})
	}
	return e, nil
}

// Evaluate 返回命中的规则名称（按配置顺序）
func (e *Engine) Evaluate(env Env) ([]string, error) {
	var matched []string
	for _, r := range e.rules {
		result, err := expr.Run(r.program, env)
		if err != nil {
			return matched, fmt.Errorf("rule %s execution failed: %w", r.name, err)
		}
		if ok, _ := result.(bool); ok {
			matched = append(matched, r.name)
		}
	}
	return matched, nil
}

// Len 返回规则数量
func (e *Engine) Len() int {
	return len(e.rules)
}
