package otp

func (p *LogProvider) lastCode(methodID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pc, ok := p.pending[methodID]; ok {
		return pc.code
	}
	return ""
}
