package fsm

import (
	"fmt"
	"self-checkout/internal/types"
	"sync"
)

// Event 定义事件类型
type Event string

const (
	EventTurnOn         Event = "TURN_ON"
	EventTurnOff        Event = "TURN_OFF"
	EventFirstScan      Event = "FIRST_SCAN"
	EventCheckout       Event = "WANTS_TO_CHECKOUT"
	EventAddMoreItems   Event = "ADD_ITEM_AFTER_CHECKOUT_START"
	EventPaymentDone    Event = "FINISH_CHECKOUT"
	EventBlock          Event = "BLOCK"
	EventUnblock        Event = "UNBLOCK"
	EventTransactionEnd Event = "TRANSACTION_END"
)

// statePrevious 是转移表中的占位目标，表示回到进入当前状态之前的状态
const statePrevious types.State = "<previous>"

// FSM 收银台有限状态机
type FSM struct {
	mu       sync.RWMutex
	current  types.State
	previous types.State
	// transitions 定义状态转移表: CurrentState -> Event -> NextState
	transitions map[types.State]map[Event]types.State
	// callbacks 定义状态变更后的回调: State -> func(from)
	callbacks map[types.State]func(from types.State)
	TargetID  string // 关联的收银台 ID
}

func New(targetID string) *FSM {
	f := &FSM{
		current:     types.StateUnavailable,
		TargetID:    targetID,
		transitions: make(map[types.State]map[Event]types.State),
		callbacks:   make(map[types.State]func(types.State)),
	}
	f.initTransitions()
	return f
}

func (f *FSM) initTransitions() {
	f.addTransition(types.StateUnavailable, EventTurnOn, types.StateReady)

	f.addTransition(types.StateReady, EventFirstScan, types.StateScanning)
	f.addTransition(types.StateReady, EventBlock, types.StateBlocked)

	f.addTransition(types.StateScanning, EventCheckout, types.StateCheckout)
	f.addTransition(types.StateScanning, EventTransactionEnd, types.StateReady)
	f.addTransition(types.StateScanning, EventBlock, types.StateBlocked)

	f.addTransition(types.StateCheckout, EventAddMoreItems, types.StateScanning)
	f.addTransition(types.StateCheckout, EventPaymentDone, types.StateReady)
	f.addTransition(types.StateCheckout, EventBlock, types.StateBlocked)

	f.addTransition(types.StateBlocked, EventUnblock, statePrevious)

	for _, s := range []types.State{types.StateUnavailable, types.StateReady, types.StateScanning, types.StateCheckout, types.StateBlocked} {
		f.addTransition(s, EventTurnOff, types.StateUnavailable)
	}
}

func (f *FSM) addTransition(from types.State, event Event, to types.State) {
	if _, ok := f.transitions[from]; !ok {
		f.transitions[from] = make(map[Event]types.State)
	}
	f.transitions[from][event] = to
}

// RegisterCallback 注册状态进入时的回调
func (f *FSM) RegisterCallback(state types.State, callback func(from types.State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks[state] = callback
}

// Can 判断当前状态下事件是否合法
func (f *FSM) Can(event Event) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.transitions[f.current][event]
	return ok
}

// Fire 触发事件，返回转移前后的状态
func (f *FSM) Fire(event Event) (from, to types.State, err error) {
	f.mu.Lock()
	nextState, ok := f.transitions[f.current][event]
	if !ok {
		cur := f.current
		f.mu.Unlock()
		return cur, cur, fmt.Errorf("invalid transition: cannot fire event %s from state %s", event, cur)
	}
	if nextState == statePrevious {
		nextState = f.previous
	}

	from = f.current
	f.previous = from
	f.current = nextState
	cb := f.callbacks[nextState]
	f.mu.Unlock()

	// 回调在锁外同步执行，回调中可以读取状态但不要再调用 Fire
	if cb != nil {
		cb(from)
	}
	return from, nextState, nil
}

// Current 返回当前状态
func (f *FSM) Current() types.State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Previous 返回进入当前状态之前的状态
func (f *FSM) Previous() types.State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.previous
}
