package vpp

// FileStack is the stack of files currently open, innermost on top.
// Popping at end of file is the scanner's job.
type FileStack struct {
	files []string
}

// Push makes name the current file.
func (s *FileStack) Push(name string) {
	s.files = append(s.files, name)
}

// Peek returns the current file.
func (s *FileStack) Peek() (string, bool) {
	if len(s.files) == 0 {
		return "", false
	}
	return s.files[len(s.files)-1], true
}

// Pop removes and returns the current file.
func (s *FileStack) Pop() (string, bool) {
	if len(s.files) == 0 {
		return "", false
	}
	top := s.files[len(s.files)-1]
	s.files = s.files[:len(s.files)-1]
	return top, true
}

// Reset clears the stack and pushes name.
func (s *FileStack) Reset(name string) {
	s.files = append(s.files[:0], name)
}

// Depth returns the number of open files.
func (s *FileStack) Depth() int {
	return len(s.files)
}

// Files returns a copy of the stack, outermost first.
func (s *FileStack) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}
