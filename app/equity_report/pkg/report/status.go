package report

// State 进度状态
type State string

const (
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

const (
	LabelProcessing = "Processing..."
	LabelGenerating = "Generating sub-questions and fetching reponses..."
)

// Status 进度指示器，expanded 提示界面是否展开子问题面板
type Status interface {
	Update(state State, label string, expanded bool)
}

// StatusFunc 函数适配器
type StatusFunc func(state State, label string, expanded bool)

func (f StatusFunc) Update(state State, label string, expanded bool) { f(state, label, expanded) }

type nopStatus struct{}

func (nopStatus) Update(State, string, bool) {}
