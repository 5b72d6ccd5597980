package log

import "log/slog"

func Feature(route string) slog.Attr {
	return slog.String("feature", route)
}

func Dir(dir string) slog.Attr {
	return slog.String("dir", dir)
}

func Step(name string) slog.Attr {
	return slog.String("step", name)
}

func Task(name string) slog.Attr {
	return slog.String("task", name)
}

func Method[T ~string](m T) slog.Attr {
	return slog.String("method", string(m))
}

func Route(path string) slog.Attr {
	return slog.String("route", path)
}

func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
