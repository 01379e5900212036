// Package coughdx provides an embeddable cough recording and diagnosis client.
//
// A Client records a short cough clip from an audio input, uploads it to a
// diagnosis server as multipart form data and renders the returned label and
// confidence through a View.
//
// # Basic Usage
//
//	client, err := coughdx.New(coughdx.Config{
//	    ServerURL: "http://localhost:5000",
//	    InputFile: "cough.wav",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session := client.NewSession()
//	go session.Run(ctx)
//
//	session.Toggle() // start recording
//	session.Toggle() // stop and upload
//	// ... the View shows the diagnosis ...
//	session.Reset()  // back to the recording panel
//
// One-shot uploads of existing recordings go through [Client.SubmitFile].
//
// # Session States
//
// A session is in one of four states: [StateIdle], [StateRecording],
// [StateUploading] or [StateResultShown]. Toggle only acts in Idle and
// Recording; Reset only acts in ResultShown. Pass an [EventHandler] via
// [WithEventHandler] to observe transitions.
//
// # History
//
// With a user ID and a history store ([WithHistoryStore]) every diagnosis is
// archived together with the clip location ([WithObjectStore]). Archiving
// runs in the background; call [Client.Wait] before exiting.
package coughdx
