package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const summarySystemPrompt = `You are an expert medical AI assistant specializing in clinical documentation.
Your task is to analyze medical notes and provide structured, accurate summaries that help healthcare providers quickly understand patient conditions and care plans.

Guidelines:
- Be precise and medically accurate
- Use standard medical terminology
- Highlight critical information
- Maintain HIPAA compliance (no identifiable information)
- Focus on actionable insights`

const summaryJSONTemplate = `{
    "summary": "Brief 2-3 sentence overview",
    "key_findings": "Most important clinical findings",
    "chief_complaint": "Primary reason for visit",
    "assessment": "Clinical assessment and diagnosis",
    "vital_signs": "Any vital signs mentioned",
    "medications": "Medications mentioned",
    "treatment_plan": "Recommended treatment plan",
    "follow_up": "Follow-up recommendations",
    "risk_factors": "Any identified risk factors",
    "urgent_flags": "Any urgent concerns requiring immediate attention"
}`

const riskSystemPrompt = `You are a clinical risk assessment AI with expertise in identifying patient risk factors and providing evidence-based recommendations.

Your task is to:
1. Assess overall patient risk level (LOW, MEDIUM, HIGH, CRITICAL)
2. Identify specific risk factors
3. Provide evidence-based recommendations
4. Suggest monitoring requirements
5. Determine if escalation is needed

Base your assessment on:
- Current symptoms and conditions
- Vital signs and lab values
- Patient history and comorbidities
- Standard clinical guidelines`

const riskJSONTemplate = `{
    "risk_level": "LOW|MEDIUM|HIGH|CRITICAL",
    "confidence_score": 0-100,
    "summary": "Overall risk assessment summary",
    "risk_factors": ["list of specific risk factors"],
    "clinical_concerns": ["immediate clinical concerns"],
    "recommendations": ["specific evidence-based recommendations"],
    "monitoring_plan": "Recommended monitoring frequency and parameters",
    "escalation_criteria": "When to escalate care",
    "requires_urgent_attention": true/false,
    "estimated_severity": "mild|moderate|severe|life-threatening"
}`

const treatmentSystemPrompt = `You are a medical AI assistant specialized in evidence-based treatment planning.
Provide treatment recommendations based on current clinical guidelines and best practices.
Always consider patient safety, contraindications, and individual patient factors.`

const treatmentJSONTemplate = `{
    "primary_treatment": "First-line treatment approach",
    "medications": [
        {
            "name": "medication name",
            "dosage": "typical dosage",
            "frequency": "how often",
            "duration": "treatment duration",
            "rationale": "why this medication"
        }
    ],
    "non_pharmacological": ["lifestyle modifications", "therapies"],
    "monitoring_requirements": "What to monitor and how often",
    "patient_education": ["key points to educate patient"],
    "red_flags": ["warning signs to watch for"],
    "follow_up_timeline": "When to follow up"
}`

const overviewSystemPrompt = "You are an expert clinical documentation assistant. " +
	"Write a brief, 3-4 line overview that captures the patient's current status, " +
	"key diagnoses/complaints, notable vitals/findings, and plan or follow-up. " +
	"Be concise, objective, and clinically relevant."

const (
	summaryHistoryNotes = 3
	riskHistoryNotes    = 5
)

func summaryPrompt(in NoteInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this %s medical note and provide a comprehensive structured summary:\n\n", noteTypeOrDefault(in.NoteType))
	fmt.Fprintf(&b, "MEDICAL NOTE:\n%s\n", in.Content)
	if h := lastN(in.History, summaryHistoryNotes); len(h) > 0 {
		fmt.Fprintf(&b, "\nPATIENT HISTORY CONTEXT:\n%s\n", strings.Join(h, "\n"))
	}
	b.WriteString("Provide your analysis in the following JSON format:\n")
	b.WriteString(summaryJSONTemplate)
	b.WriteByte('\n')
	return b.String()
}

func riskPrompt(in RiskInput) string {
	parts := []string{"CURRENT NOTE:\n" + in.Content}
	if h := lastN(in.History, riskHistoryNotes); len(h) > 0 {
		parts = append(parts, "\nPATIENT HISTORY:\n"+strings.Join(h, "\n"))
	}
	if len(in.VitalSigns) > 0 {
		parts = append(parts, "\nVITAL SIGNS:\n"+vitalsJSON(in.VitalSigns))
	}

	var b strings.Builder
	b.WriteString("Perform a comprehensive risk assessment:\n\n")
	b.WriteString(strings.Join(parts, "\n"))
	b.WriteString("\n\nProvide your assessment in JSON format:\n")
	b.WriteString(riskJSONTemplate)
	b.WriteByte('\n')
	return b.String()
}

func treatmentPrompt(in TreatmentInput) string {
	var b strings.Builder
	b.WriteString("Generate treatment recommendations for:\n\n")
	fmt.Fprintf(&b, "DIAGNOSIS: %s\n\n", in.Diagnosis)
	fmt.Fprintf(&b, "PATIENT CONTEXT:\n%s\n", in.PatientContext)
	if len(in.Contraindications) > 0 {
		fmt.Fprintf(&b, "\nCONTRAINDICATIONS:\n%s\n", strings.Join(in.Contraindications, "\n"))
	}
	b.WriteString("\nProvide recommendations in JSON format:\n")
	b.WriteString(treatmentJSONTemplate)
	b.WriteByte('\n')
	return b.String()
}

func overviewPrompt(patientName string, notes []string) string {
	return "Patient: " + patientName + "\nRecent notes:\n" + joinRecent(notes)
}

func vitalsJSON(v map[string]string) string {
	raw, _ := json.MarshalIndent(v, "", "  ")
	return string(raw)
}

func lastN(items []string, n int) []string {
	if len(items) > n {
		return items[len(items)-n:]
	}
	return items
}

func noteTypeOrDefault(t string) string {
	if t == "" {
		return "general"
	}
	return t
}
