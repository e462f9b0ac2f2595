package ats

import "fmt"

func analysisPrompt(jobTitle, resumeText, jobDescription string) string {
	return fmt.Sprintf(`
You are an ATS (Applicant Tracking System) analyzer for a %s role.
Analyze the resume and job description to calculate:
- ATS compatibility score (0-100%%)
- Relevant skills
- Keywords
- Trending skills
- Trending keywords
- Suggestions for improvement

Return the response strictly in JSON format:
{
  "ats_compatibility_score": int,
  "skills": [],
  "keywords": [],
  "trending_skills": [],
  "trending_keywords": [],
  "suggestions": []
}

Resume: %s
Job Description: %s
`, jobTitle, resumeText, jobDescription)
}
