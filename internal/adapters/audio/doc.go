// Package audio implements the audio side of coughdx: WAV assembly of
// captured clips and the capture devices behind ports.Microphone.
//
// Two microphones are provided. [FileMicrophone] replays a WAV file as if it
// were a live input, which is what headless runs and tests use. The PortAudio
// microphone talks to the default input device and is only compiled with the
// "portaudio" build tag because it needs cgo and the PortAudio library.
package audio
