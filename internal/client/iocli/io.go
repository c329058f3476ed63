// Package iocli терминальный ввод-вывод CLI: вывод, строки и пароли.
package iocli

//go:generate moq -out io_mock.go . IO

// IO ввод-вывод CLI. NewStdio работает с терминалом, NewStream с любыми потоками.
type IO interface {
	// Write пишет сырые байты, используется как io.Writer для cobra и lipgloss
	Write(p []byte) (n int, err error)
	Println(a ...any)
	Printf(format string, a ...any)

	// ReadInput печатает prompt и возвращает строку без перевода строки
	ReadInput(prompt string) (string, error)
	// ReadPassword читает пароль без эха, если вход терминал
	ReadPassword(prompt string) (string, error)
}
