// Package mfgchat embeds the manufacturing-service consultation chatbot in a
// Go program, or talks to a running mfgchat server over HTTP.
//
// The chatbot answers in two modes:
//   - recommend: suggests services and materials from similar past projects
//   - explain: describes the service closest to the question
//
// # Embedded
//
//	m, _ := mfgchat.New(ctx,
//	    mfgchat.WithValkey("localhost:6379", ""),
//	    mfgchat.WithEmbedder(emb),
//	    mfgchat.WithCompleter(llm),
//	    mfgchat.WithSources("data/manufacturing_dataset.csv", "data/service_definitions.csv"),
//	)
//	defer m.Close()
//	_, _ = m.SyncProjects(ctx)
//	ans, _ := m.Respond(ctx, mfgchat.ModeRecommend, "알루미늄 하우징 가공")
//
// # Remote
//
//	c := mfgchat.NewClient("http://localhost:8080", mfgchat.WithAPIKey(key))
//	ans, _ := c.Chat(ctx, mfgchat.ModeExplain, "CNC 가공이 뭔가요?")
package mfgchat
