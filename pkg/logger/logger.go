package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"
)

// Options controls where and how much the application logs
type Options struct {
	Level     string // DEBUG, INFO, WARN, ERROR
	Directory string // empty keeps output on stdout only
	MaxAge    int    // days to keep rotated log folders
}

// LogFormatter log formatter structure
type LogFormatter struct {
	TimestampFormat string
	LevelDesc       []string
}

// Format format entry in custom format
func (f *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(f.TimestampFormat)
	level := f.LevelDesc[entry.Level]

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", timestamp, level, entry.Message)
	for k, v := range entry.Data {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func init() {
	log.SetFormatter(&LogFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		LevelDesc:       []string{"PANIC", "FATAL", "ERROR", "WARN", "INFO", "DEBUG", "TRACE"},
	})
}

// Init configures level and output. With a directory, output goes to
// stdout and to hourly rotated files under a per-day folder.
func Init(opts Options) error {
	log.SetLevel(parseLevel(opts.Level))

	if opts.Directory == "" {
		log.SetOutput(os.Stdout)
		return nil
	}

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = 2 // Default max age in days
	}

	logFile := filepath.Join(opts.Directory, ".log")
	dateFolder, err := createLogFolder(logFile)
	if err != nil {
		return fmt.Errorf("create log folder: %w", err)
	}

	rl, err := initializeLogRotation(logFile, dateFolder, maxAge)
	if err != nil {
		return fmt.Errorf("init log rotation: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rl))

	deleteOldLogFilesRoutine(opts.Directory, maxAge)
	return nil
}

// SetOutput redirects log output
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func parseLevel(level string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return log.DebugLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Info logs informational messages
func Info(message string) {
	log.Info(message)
}

// Warn logs warning messages
func Warn(message string) {
	log.Warn(message)
}

// Error logs error messages
func Error(message string) {
	log.Error(message)
}

// Debug logs debug messages
func Debug(message string) {
	log.Debug(message)
}

// Fatal logs fatal error and exits
func Fatal(message string) {
	log.Fatal(message)
}

// Infof logs formatted informational message
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Warnf logs formatted warning message
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Errorf logs formatted error message
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

// Debugf logs formatted debug message
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// WithFields returns an entry carrying additional context
func WithFields(fields map[string]interface{}) *log.Entry {
	return log.WithFields(log.Fields(fields))
}

// createLogFolder creates a folder for logs based on the current date
func createLogFolder(logFile string) (string, error) {
	baseDir := filepath.Dir(logFile)
	dateFolder := filepath.Join(baseDir, time.Now().Format("2006-01-02"))
	err := os.MkdirAll(dateFolder, 0o755)
	return dateFolder, err
}

// initializeLogRotation initializes log rotation with specified settings
func initializeLogRotation(logFile, dateFolder string, logFileMaxAge int) (*rotatelogs.RotateLogs, error) {
	return rotatelogs.New(
		fmt.Sprintf("%s/%%Y-%%m-%%d-%%H%s", dateFolder, filepath.Base(logFile)),
		rotatelogs.WithLinkName(fmt.Sprintf("%s/%s", dateFolder, filepath.Base(logFile))),
		rotatelogs.WithRotationTime(time.Hour),
		rotatelogs.WithMaxAge(time.Duration(logFileMaxAge)*24*time.Hour),
		// Compress the previous file once rotated
		rotatelogs.WithHandler(rotatelogs.HandlerFunc(func(e rotatelogs.Event) {
			if e.Type() != rotatelogs.FileRotatedEventType {
				return
			}
			prev := e.(*rotatelogs.FileRotatedEvent).PreviousFile()
			if prev == "" {
				return
			}
			if err := compressLogFile(prev, prev+".gz"); err != nil {
				log.Warnf("log compression failed: %v", err)
			}
		})),
	)
}

// deleteOldLogFilesRoutine starts a routine to delete old log folders
func deleteOldLogFilesRoutine(logDirectory string, logFileMaxAge int) {
	go func() {
		for {
			deleteOldDateFolders(logDirectory, logFileMaxAge)
			time.Sleep(time.Hour)
		}
	}()
}

// deleteOldDateFolders deletes date folders older than the specified max age
func deleteOldDateFolders(baseDir string, maxAgeDays int) {
	cutoff := time.Now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		log.Warnf("read log directory %s: %v", baseDir, err)
		return
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(baseDir, e.Name())
			if err := os.RemoveAll(path); err != nil {
				log.Warnf("delete old log folder %s: %v", path, err)
			}
		}
	}
}

// compressLogFile compresses a log file to gzip format
func compressLogFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	gzf, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode())
	if err != nil {
		return fmt.Errorf("failed to open compressed log file: %w", err)
	}
	defer gzf.Close()

	gz := gzip.NewWriter(gzf)
	if _, err := io.Copy(gz, f); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
