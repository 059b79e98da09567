package battery

// RAMSource is the machine surface a Syncer persists.
type RAMSource interface {
	RAM() []byte
	SetRAM(data []byte)
	ConsumeRAMDirty() bool
}

// Attach restores saved RAM into src unless the file was just created.
func Attach(b *File, src RAMSource) error {
	if b.Fresh() {
		return nil
	}
	data, err := b.Load()
	if err != nil {
		return err
	}
	src.SetRAM(data)
	src.ConsumeRAMDirty()
	return nil
}

// Sync stores src's RAM if it changed since the last call. It reports
// whether a write happened.
func Sync(b *File, src RAMSource) (bool, error) {
	if !src.ConsumeRAMDirty() {
		return false, nil
	}
	return true, b.Store(src.RAM())
}
