package render

import "strings"

// TierDescription explains what a maturity tier means for the organisation.
func TierDescription(tier string) string {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "leader":
		return "This means your organization has developed mature AI capabilities, with well-established processes for developing, deploying, and managing AI solutions. You have a strong foundation of data infrastructure, AI talent, governance frameworks, and strategic alignment."
	case "enabler":
		return "This means your organization has begun to develop significant AI capabilities with some successful implementations. You have established basic data infrastructure and are working toward more systematized approaches to AI development and deployment."
	case "dabbler":
		return "This means your organization is in the early stages of AI adoption, with limited formal processes and capabilities. You may have experimented with some AI applications but lack a comprehensive strategy and infrastructure for AI implementation."
	case "":
		return ""
	default:
		return "Your assessment results indicate you're at an early stage of AI adoption. The recommendations in this report will help you establish a solid foundation for AI implementation."
	}
}
