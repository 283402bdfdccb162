package prompt

// Editor は自動生成プロンプトと手動編集の状態を保持します。
// 手動編集後は Reset されるまで入力が変わってもテキストを上書きしません。
// 並行アクセスは呼び出し側で保護してください。
type Editor struct {
	text   string
	manual bool
	last   Input
}

// NewEditor は in から組み立てたプロンプトで Editor を初期化します。
func NewEditor(in Input) *Editor {
	e := &Editor{}
	e.Update(in)
	return e
}

// Update は最新の入力を記録し、手動編集中でなければプロンプトを組み立て直します。
func (e *Editor) Update(in Input) string {
	e.last = in
	if !e.manual {
		e.text = Compose(in)
	}
	return e.text
}

// Edit はユーザーが編集したテキストで固定します。
func (e *Editor) Edit(text string) {
	e.text = text
	e.manual = true
}

// Reset は手動編集を解除し、最新の入力から組み立てたテキストに戻します。
func (e *Editor) Reset() string {
	e.manual = false
	e.text = Compose(e.last)
	return e.text
}

func (e *Editor) Text() string {
	return e.text
}

func (e *Editor) Overridden() bool {
	return e.manual
}
