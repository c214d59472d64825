package engine

// State はドライバーの進行状態
// 各遷移は前方向のみで、失敗時はその状態のまま終了する
type State int

const (
	StateUninitialized State = iota
	StateSubsystemReady
	StateWindowReady
	StateRendererReady
	StateAssetsLoaded
	StateRendered
	StatePresented
	StateTornDown
)

var stateNames = [...]string{
	StateUninitialized:  "Uninitialized",
	StateSubsystemReady: "SubsystemReady",
	StateWindowReady:    "WindowReady",
	StateRendererReady:  "RendererReady",
	StateAssetsLoaded:   "AssetsLoaded",
	StateRendered:       "Rendered",
	StatePresented:      "Presented",
	StateTornDown:       "TornDown",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}
