package memstore

// FeedCount expone a los tests cuántos feeds siguen registrados en la colección.
func (s *Store) FeedCount(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cols[collection]; ok {
		return len(c.feeds)
	}
	return 0
}
