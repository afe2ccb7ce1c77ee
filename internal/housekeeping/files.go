package housekeeping

import "os"

// DeleteFile removes a file, reporting false when it was already absent.
// Both outcomes are success for idempotent cleanup.
func DeleteFile(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
