package audio

// Export internal types for testing.
// This file is only compiled during tests (suffix _test.go).

// CommandRunner exports commandRunner interface for testing.
type CommandRunner = commandRunner

// TempDirCreator exports tempDirCreator interface for testing.
type TempDirCreator = tempDirCreator

// FileWriter exports fileWriter interface for testing.
type FileWriter = fileWriter

// FileRemover exports fileRemover interface for testing.
type FileRemover = fileRemover
