package generator

const roadmapSystemPrompt = `You are a study planning assistant. Generate a hierarchical roadmap for the requested topic with clear logical dependencies between topics and subtopics.

Output strictly valid JSON in this format:
{
  "main_topic": "<topic>",
  "roadmap": [
    {
      "id": "1",
      "topic": "Main Concept A",
      "estimated_time_hours": 4,
      "prerequisites": [],
      "subtopics": [
        {"id": "1.1", "topic": "Sub A1", "estimated_time_hours": 2, "prerequisites": ["1"]},
        {"id": "1.2", "topic": "Sub A2", "estimated_time_hours": 2, "prerequisites": ["1.1"]}
      ]
    },
    {"id": "2", "topic": "Main Concept B", "estimated_time_hours": 3, "prerequisites": ["1.2"]}
  ]
}

Rules:
- ids are dotted positions ("1", "1.1", "2").
- prerequisites only reference ids that appear in the roadmap.
- Only return JSON. No explanation.`

const roadmapUserPrompt = `Topic: %s
Purpose of study: %s
Hours available: %s`

const refineSystemPrompt = `You repair roadmap JSON. The input was supposed to be an object with "main_topic" and a non-empty "roadmap" array of topics, each with "id", "topic", "estimated_time_hours", "prerequisites" and optional "subtopics". Return only the corrected JSON.`
