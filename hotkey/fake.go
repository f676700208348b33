package hotkey

type FakeHotkey struct {
	pressed chan struct{}
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{pressed: make(chan struct{}, 1)}
}

func (f *FakeHotkey) Register() error { return nil }
func (f *FakeHotkey) Unregister() {}
func (f *FakeHotkey) Pressed() <-chan struct{} { return f.pressed }

func (f *FakeHotkey) SimPress() { f.pressed <- struct{}{} }
