package rod

// FakeChatHTML imitates the chat page: Enter adds a streaming indicator,
// which is replaced by an assistant message echoing the prompt.
const FakeChatHTML = `<!DOCTYPE html>
<html>
<head><title>Fake Chat</title></head>
<body>
	<main id="thread"></main>
	<textarea id="prompt-textarea"></textarea>
	<script>
		const box = document.getElementById('prompt-textarea');
		const thread = document.getElementById('thread');
		box.addEventListener('keydown', (e) => {
			if (e.key !== 'Enter') return;
			e.preventDefault();
			const prompt = box.value;
			box.value = '';
			const streaming = document.createElement('div');
			streaming.className = 'result-streaming';
			streaming.textContent = '...';
			thread.appendChild(streaming);
			setTimeout(() => {
				streaming.remove();
				const msg = document.createElement('div');
				msg.setAttribute('data-message-author-role', 'assistant');
				msg.textContent = 'Echo: ' + prompt;
				thread.appendChild(msg);
			}, 300);
		});
	</script>
</body>
</html>`

// StuckChatHTML never finishes streaming.
const StuckChatHTML = `<!DOCTYPE html>
<html>
<body>
	<textarea id="prompt-textarea"></textarea>
	<div class="result-streaming">...</div>
</body>
</html>`

const EmptyHTML = `<!DOCTYPE html>
<html>
<body>
	<p>nothing here</p>
</body>
</html>`
