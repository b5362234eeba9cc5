package observability

// The methods below let the account service and the auth middleware record
// outcomes without knowing about prometheus. A nil *Prom records nothing.

func (p *Prom) SignUp(result string) {
	if p == nil {
		return
	}
	p.SignUpsTotal.WithLabelValues(result).Inc()
}

func (p *Prom) SignIn(result string) {
	if p == nil {
		return
	}
	p.SignInsTotal.WithLabelValues(result).Inc()
}

func (p *Prom) TokenCheck(result string) {
	if p == nil {
		return
	}
	p.TokenChecksTotal.WithLabelValues(result).Inc()
}

func (p *Prom) RoleGranted() {
	if p == nil {
		return
	}
	p.RoleGrantsTotal.Inc()
}
