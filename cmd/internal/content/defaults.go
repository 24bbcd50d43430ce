package content

import "encoding/json"

func raw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// defaultSite is the starter content a fresh deployment serves until the
// admin edits it. The shape of each section is what the frontend expects;
// the values are placeholders.
func defaultSite() siteDoc {
	return siteDoc{
		"profile": raw(map[string]any{
			"name":        "Alex Doe",
			"title":       "Full-Stack Developer & Designer",
			"description": "I build small, fast things for the web and care about the details.",
			"avatar":      "https://api.dicebear.com/7.x/avataaars/svg?seed=Felix",
			"siteName":    "My Homepage",
		}),
		"about": raw(map[string]any{
			"content": []string{
				"I am a developer who enjoys working across the whole stack, from data models to pixel alignment.",
				"Good design is not decoration; it is how the product works. I try to bring that to every project.",
				"Away from the keyboard I read, walk, and drink more coffee than is strictly necessary.",
			},
			"stats": map[string]int{
				"projects":   50,
				"experience": 5,
				"clients":    100,
			},
		}),
		"skills": raw([]map[string]any{
			{"id": 1, "name": "HTML / CSS", "icon": "fab fa-html5", "description": "Semantic HTML5, responsive layout, CSS animation", "progress": 95},
			{"id": 2, "name": "JavaScript", "icon": "fab fa-js-square", "description": "ES6+, TypeScript, frontend frameworks", "progress": 90},
			{"id": 3, "name": "React / Vue", "icon": "fab fa-react", "description": "Component design, state management, SPAs", "progress": 88},
			{"id": 4, "name": "Node.js", "icon": "fab fa-node-js", "description": "Express, Koa, RESTful APIs", "progress": 85},
			{"id": 5, "name": "Go", "icon": "fas fa-code", "description": "Services, tooling, concurrent systems", "progress": 82},
			{"id": 6, "name": "UI/UX Design", "icon": "fas fa-palette", "description": "Figma, prototyping, user research", "progress": 80},
		}),
		"projects": raw([]map[string]any{
			{"id": 1, "title": "Storefront", "description": "A modern e-commerce site with responsive design and multiple payment options", "image": "https://picsum.photos/seed/project1/600/400", "tags": []string{"React", "Node.js", "MongoDB"}, "demoUrl": "#", "codeUrl": "#"},
			{"id": 2, "title": "Task Board", "description": "A lightweight task manager with team collaboration and live sync", "image": "https://picsum.photos/seed/project2/600/400", "tags": []string{"Vue.js", "Firebase", "Tailwind"}, "demoUrl": "#", "codeUrl": "#"},
			{"id": 3, "title": "Social Dashboard", "description": "Analytics dashboard visualizing statistics across social platforms", "image": "https://picsum.photos/seed/project3/600/400", "tags": []string{"Python", "D3.js", "PostgreSQL"}, "demoUrl": "#", "codeUrl": "#"},
		}),
		"contact": raw(map[string]any{
			"email":    "hello@example.com",
			"phone":    "+1 555 0100",
			"location": "Berlin, Germany",
		}),
		"social": raw([]map[string]any{
			{"id": 1, "platform": "GitHub", "icon": "fab fa-github", "url": "https://github.com"},
			{"id": 2, "platform": "Mastodon", "icon": "fab fa-mastodon", "url": "https://mastodon.social"},
			{"id": 3, "platform": "LinkedIn", "icon": "fab fa-linkedin-in", "url": "https://linkedin.com"},
			{"id": 4, "platform": "Twitter", "icon": "fab fa-twitter", "url": "https://twitter.com"},
		}),
		"messages": raw([]any{}),
		"settings": raw(map[string]any{
			"theme":          "auto",
			"autoThemeLight": "06:00",
			"autoThemeDark":  "18:00",
		}),
	}
}
