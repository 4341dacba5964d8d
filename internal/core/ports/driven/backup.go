package driven

// BackupService copies the persistent stores to and from a backup
// location.
type BackupService interface {
	// Backup copies the given source paths into a new timestamped
	// directory under dest and returns that directory.
	Backup(sources []string, dest string) (string, error)

	// Restore copies the contents of a backup directory into dest.
	Restore(backupDir, dest string) error
}
